package mapdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate = validator.New()

// Rejection describes a record dropped from a snapshot.
type Rejection struct {
	Kind   string // "zone" or "portal"
	Index  int
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s[%d]: %s", r.Kind, r.Index, r.Reason)
}

// Sanitize drops records that cannot be drawn at all (missing names or
// endpoints, negative time left). Palette values are deliberately not checked
// here; unknown colours and sizes are styled as unstyled defaults downstream.
// The input is not modified.
func Sanitize(s Snapshot) (Snapshot, []Rejection) {
	var rejected []Rejection
	out := Snapshot{
		Zones:   make([]Zone, 0, len(s.Zones)),
		Portals: make([]Portal, 0, len(s.Portals)),
	}

	for i := range s.Zones {
		if err := validate.Struct(&s.Zones[i]); err != nil {
			rejected = append(rejected, Rejection{Kind: "zone", Index: i, Reason: formatValidationError(err)})
			continue
		}
		out.Zones = append(out.Zones, s.Zones[i])
	}

	for i := range s.Portals {
		if err := validate.Struct(&s.Portals[i]); err != nil {
			rejected = append(rejected, Rejection{Kind: "portal", Index: i, Reason: formatValidationError(err)})
			continue
		}
		out.Portals = append(out.Portals, s.Portals[i])
	}

	return out, rejected
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
