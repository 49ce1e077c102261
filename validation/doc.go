// Package validation validates configuration structs with struct tags
// (go-playground/validator) and reports failures as *errors.AppError.
//
//	type ProbeSettings struct {
//	    Count int `mapstructure:"count" validate:"gte=0,lte=1000000"`
//	}
//	err := validation.Validate(settings)
//
// Field names in messages follow the mapstructure tag, so they match the
// keys users write in config files.
package validation
