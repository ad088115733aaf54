package utils

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stablehop/stablehop/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("uint256", validateUint256Tag)
}

func validateUint256Tag(fl validator.FieldLevel) bool {
	_, err := ParseUint256(fl.Field().String())
	return err == nil
}

// ValidateStruct runs struct-tag validation.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

// ValidateQuoteParams validates quote parameters.
func ValidateQuoteParams(p types.QuoteParams) error {
	if err := validate.Struct(&p); err != nil {
		return &types.Error{
			Code:    types.ErrCodeInvalidParams,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return nil
}

// ParsePaymentRequired parses and validates a 402 challenge from JSON.
func ParsePaymentRequired(data []byte) (*types.PaymentRequired, error) {
	var req types.PaymentRequired

	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &types.Error{
			Code:    types.ErrCodeInvalidPaymentRequired,
			Message: fmt.Sprintf("failed to parse payment required: %v", err),
		}
	}

	if err := validate.Struct(&req); err != nil {
		return nil, &types.Error{
			Code:    types.ErrCodeInvalidPaymentRequired,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	return &req, nil
}

// ParsePaymentRequiredHeader decodes a base64 JSON 402 header value.
func ParsePaymentRequiredHeader(header string) (*types.PaymentRequired, error) {
	raw, err := decodeBase64(header)
	if err != nil {
		return nil, &types.Error{
			Code:    types.ErrCodeInvalidPaymentRequired,
			Message: fmt.Sprintf("failed to decode header: %v", err),
		}
	}
	return ParsePaymentRequired(raw)
}

// EncodeBase64JSON marshals v to JSON and encodes it with standard base64.
func EncodeBase64JSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeBase64JSON reverses EncodeBase64JSON.
func DecodeBase64JSON(s string, target any) error {
	raw, err := decodeBase64(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("invalid base64")
}
