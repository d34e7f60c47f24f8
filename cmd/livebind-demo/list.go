package main

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/livefir/livebind"
	"github.com/livefir/livebind/internal/live"
)

var (
	pageLit = livebind.Lit(
		`<section class="list"><h1>`, `</h1><ul>`, `</ul><p class="count">`, ` items</p></section>`)
	itemLit = livebind.Lit(`<li data-key="`, `">`, `</li>`)
)

type addPayload struct {
	Name string `json:"name" validate:"required,max=64"`
}

type removePayload struct {
	Name string `json:"name" validate:"required"`
}

type swapPayload struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

// listComponent is a keyed list whose items can be added, removed, swapped
// and reversed. Item ranges follow their names across reorders.
type listComponent struct {
	title    string
	items    []string
	validate *validator.Validate
}

func newListComponent(title string, items []string, validate *validator.Validate) *listComponent {
	return &listComponent{
		title:    title,
		items:    slices.Clone(items),
		validate: validate,
	}
}

func (c *listComponent) Render() *livebind.TemplateResult {
	list := livebind.RepeatKeyed(c.items,
		func(name string) string { return name },
		func(name string, _ int) (*livebind.TemplateResult, error) {
			return livebind.HTML(itemLit, name, name), nil
		})
	return livebind.HTML(pageLit, c.title, list, len(c.items))
}

func (c *listComponent) HandleAction(action string, data *live.ActionData) error {
	switch action {
	case "add":
		var p addPayload
		if err := data.BindAndValidate(&p, c.validate); err != nil {
			return err
		}
		if slices.Contains(c.items, p.Name) {
			return live.FieldError{Field: "name", Message: fmt.Sprintf("%s is already listed", p.Name)}
		}
		at := len(c.items)
		if data.Has("at") {
			at = data.GetInt("at")
			if at < 0 || at > len(c.items) {
				return live.FieldError{Field: "at", Message: "position out of range"}
			}
		}
		c.items = slices.Insert(c.items, at, p.Name)

	case "remove":
		var p removePayload
		if err := data.BindAndValidate(&p, c.validate); err != nil {
			return err
		}
		i := slices.Index(c.items, p.Name)
		if i < 0 {
			return live.FieldError{Field: "name", Message: fmt.Sprintf("%s is not listed", p.Name)}
		}
		c.items = slices.Delete(c.items, i, i+1)

	case "swap":
		var p swapPayload
		if err := data.BindAndValidate(&p, c.validate); err != nil {
			return err
		}
		if p.From >= len(c.items) || p.To >= len(c.items) {
			return live.FieldError{Field: "to", Message: "index out of range"}
		}
		c.items[p.From], c.items[p.To] = c.items[p.To], c.items[p.From]

	case "reverse":
		slices.Reverse(c.items)

	default:
		return fmt.Errorf("unknown action: %s", action)
	}
	return nil
}
