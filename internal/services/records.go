package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jewelpalace/storefront/internal/store"
)

// getRecord loads and decodes one record, passing store.ErrNotFound through
func getRecord[T any](ctx context.Context, st store.Store, kind store.Kind, id string) (*T, error) {
	raw, err := st.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", kind, id, err)
	}
	return &v, nil
}

// listRecords decodes every record of kind. Records that fail to decode are
// skipped with a warning so one bad row does not hide the rest.
func listRecords[T any](ctx context.Context, st store.Store, kind store.Kind) ([]T, error) {
	raws, err := st.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.Collection(), err)
	}

	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			zap.L().Warn("skipping undecodable record", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func putRecord(ctx context.Context, st store.Store, kind store.Kind, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", kind, id, err)
	}
	if err := st.Put(ctx, kind, id, raw); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", kind, id, err)
	}
	return nil
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomString returns n characters drawn from alphabet
func randomString(n int, alphabet string) string {
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("random source unavailable: %v", err))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}

// newID builds <prefix>_<unix ms>_<9 base36 chars>
func newID(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + randomString(9, base36)
}

// newOrderID builds ORD<unix ms><5 upper-case chars>
func newOrderID(now time.Time) string {
	return "ORD" + strconv.FormatInt(now.UnixMilli(), 10) + strings.ToUpper(randomString(5, base36))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the validate tags and reports the first failure as a
// *ValidationError
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	return &ValidationError{Field: field, Message: ruleMessage(fe)}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must have at least " + fe.Param() + " entries"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

// mergeAttrs decodes a loosely typed JSON object onto target, converting
// strings to numbers and booleans where the field needs it. Keys listed in
// skip are ignored in any letter case, matching how the decoder pairs keys
// with fields.
func mergeAttrs(attrs map[string]any, target any, skip ...string) error {
	clean := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if !skipped(k, skip) {
			clean[k] = v
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(clean); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func skipped(key string, skip []string) bool {
	for _, s := range skip {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}
