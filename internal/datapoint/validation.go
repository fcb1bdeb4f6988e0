package datapoint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nerrad567/gray-logic-codec/internal/bridges/knx"
	"github.com/nerrad567/gray-logic-codec/internal/codec"
	"github.com/nerrad567/gray-logic-codec/internal/plc"
)

// Validation limits.
const (
	maxNameLength        = 64
	maxDescriptionLength = 500
	maxModbusUnitID      = 247
)

// Names must be usable as a single MQTT topic level and URL path segment.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate checks a datapoint and normalises its group address to 3-level
// form.
func Validate(d *Datapoint) error {
	if d == nil {
		return ErrInvalidName
	}
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if len(d.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidName, maxDescriptionLength)
	}

	desc, err := plc.Resolve(d.Token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if d.GroupAddress != "" {
		if desc.Family != codec.FamilyKNX {
			return fmt.Errorf("%w: %s token %q cannot have a group address", ErrInvalidGroupAddress, desc.Family, d.Token)
		}
		ga, err := knx.ParseGroupAddress(d.GroupAddress)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidGroupAddress, err)
		}
		d.GroupAddress = ga.String()
	}

	if d.UnitID != 0 {
		if desc.Family != codec.FamilyModbus {
			return fmt.Errorf("%w: %s token %q cannot have a unit id", ErrInvalidUnitID, desc.Family, d.Token)
		}
		if d.UnitID > maxModbusUnitID {
			return fmt.Errorf("%w: %d exceeds %d", ErrInvalidUnitID, d.UnitID, maxModbusUnitID)
		}
	}
	return nil
}

// ValidateName checks a datapoint name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q must be letters, digits, '_', '.' or '-'", ErrInvalidName, name)
	}
	return nil
}

// SanitiseName turns free text, such as an ETS group address name, into a
// valid datapoint name. It returns "" when nothing usable remains.
func SanitiseName(s string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		case r == '.' || r == '-':
			if !lastSep {
				b.WriteRune(r)
				lastSep = true
			}
		default:
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "_.-")
	if len(out) > maxNameLength {
		out = strings.TrimRight(out[:maxNameLength], "_.-")
	}
	return out
}

// isValidationError reports whether err rejects one datapoint rather than
// signalling a storage failure.
func isValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidName, ErrInvalidToken, ErrInvalidGroupAddress,
		ErrInvalidUnitID, ErrGroupAddressInUse, ErrExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
