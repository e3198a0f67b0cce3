package backends

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/kidylee/incubator-opendal/interfaces"
)

var validate = validator.New()

// decodeConfig decodes a flat configuration map into a backend's typed
// options struct and validates it. Any decode or validation failure is an
// invalid-configuration error carrying the cause.
func decodeConfig(cfg interfaces.Config, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	if err := dec.Decode(map[string]string(cfg)); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidConfig, err)
	}

	return nil
}
