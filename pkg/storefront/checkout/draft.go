package checkout

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/veloura/storefront/api/validators"
	"github.com/veloura/storefront/pkg/storefront/session"
	"github.com/veloura/storefront/pkg/types"
)

// Draft is the form state the shopper fills in before placement. It persists
// to the session store on every change (debounced) and is cleared only after
// terminal success.
type Draft struct {
	Billing       types.AddressRecord `json:"billing" validate:"required"`
	Shipping      types.AddressRecord `json:"shipping" validate:"required"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
}

// FieldErrors maps json field names to human-readable validation messages.
type FieldErrors map[string]string

// validateDraft runs the client-side gate: no network call happens until
// this returns empty. The validator instance is shared with the gateway so
// postcode/mobile rules cannot drift between the two halves.
func validateDraft(d Draft) FieldErrors {
	errs := FieldErrors{}

	if !d.PaymentMethod.Valid() {
		errs["payment_method"] = "select a payment method"
	}

	collect := func(prefix string, record types.AddressRecord) {
		err := validators.Validator().Struct(record)
		if err == nil {
			return
		}
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs[prefix] = "is invalid"
			return
		}
		for _, fe := range fieldErrs {
			errs[prefix+"."+fe.Field()] = fieldMessage(fe)
		}
	}
	collect("billing", d.Billing)
	collect("shipping", d.Shipping)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "postcode":
		return "must be a 6-digit postcode"
	case "mobile":
		return "must be a 10-digit mobile number"
	}
	return "is invalid"
}

// loadDraft restores a previously saved draft, returning a zero draft when
// none exists or the stored payload is unreadable.
func loadDraft(store session.Store) Draft {
	raw, ok, err := store.Get(session.KeyDraft)
	if err != nil || !ok {
		return Draft{}
	}
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Draft{}
	}
	return d
}

func saveDraft(store session.Store, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return store.Set(session.KeyDraft, string(raw))
}
