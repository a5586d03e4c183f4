package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var errInvalidPayload = errors.New("invalid payload")

// productRequest is the wire form of a product body. Pointer fields let the
// validator tell an omitted ProductCode from an explicit zero.
type productRequest struct {
	ID          *uint            `json:"Id"`
	ProductCode *int             `json:"ProductCode" validate:"required"`
	Name        string           `json:"Name" validate:"required,notblank"`
	Price       *decimal.Decimal `json:"Price"`
}

func (p productRequest) id() uint {
	if p.ID == nil {
		return 0
	}
	return *p.ID
}

func (p productRequest) price() decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return *p.Price
}

func newProductValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.fields))
}

func decodeProductRequest(r *http.Request, validate *validator.Validate) (productRequest, error) {
	var body productRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return productRequest{}, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	if err := validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return productRequest{}, &validationError{fields: fields}
		}
		return productRequest{}, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	return body, nil
}

func parsePathID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("missing id")
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
