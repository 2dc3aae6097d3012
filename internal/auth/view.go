package auth

import (
	"kasetinfo/internal/models"
	"kasetinfo/internal/session"
)

// Field describes one input of the item form.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// Viewer is the signed-in user as shown to the admin client.
type Viewer struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// AdminPayload is what the admin endpoint returns for a login state.
type AdminPayload struct {
	State         string  `json:"state"`
	LoginRequired bool    `json:"login_required"`
	Login         string  `json:"login,omitempty"`
	Viewer        *Viewer `json:"viewer,omitempty"`
	Form          []Field `json:"form,omitempty"`
}

// itemForm is the create form schema.
func itemForm() []Field {
	cats := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		cats[i] = string(c)
	}
	return []Field{
		{Name: "title", Type: "text", Required: true},
		{Name: "summary", Type: "textarea", Required: true},
		{Name: "content", Type: "textarea", Required: true},
		{Name: "image_url", Type: "url"},
		{Name: "source_url", Type: "url"},
		{Name: "display_category", Type: "select", Required: true, Options: cats},
		{Name: "tags", Type: "tags"},
	}
}

// AdminView maps a gate state to the admin payload. It has no other input
// than the state and the resolved session.
func AdminView(state State, data *session.Data) AdminPayload {
	p := AdminPayload{State: state.String()}
	switch state {
	case SignedIn:
		if data != nil {
			p.Viewer = &Viewer{Email: data.Email, DisplayName: data.DisplayName, Role: data.Role}
		}
		p.Form = itemForm()
	case Checking:
		// Nothing to show until the lookup resolves.
	default:
		p.LoginRequired = true
		p.Login = "/api/auth/login"
	}
	return p
}
