// Package knx resolves KNX Datapoint Types and supplies the rule table
// entries that decode KNX group telegram payloads.
//
// # Datapoint Types
//
// A Datapoint Type (DPT) names a bit layout, the format, and the meaning
// of the value. Identifiers are accepted in every form found in ETS
// exports and documentation:
//
//	t, err := knx.ParseDPT("9.001")          // main.sub
//	t, err = knx.ParseDPT("DPST-9-1")        // ETS export
//	t, err = knx.ParseDPT("DPT-9")           // main type, default format
//	t, err = knx.ParseDPT("Value_Temp")      // symbolic name
//
// A resolved type yields a codec.Descriptor whose Format selects one of the
// rules returned by Entries:
//
//	d := t.Descriptor("9.001")
//	v, err := c.Decode([]byte{0x0C, 0x33}, d) // FLOAT 21.5
//
// Formats are laid out most significant bit first, reserved bits included,
// so 1-bit and other short formats occupy one whole byte. Telegram.Payload
// converts short frames into that layout.
//
// # Group Addresses
//
// Group addresses are parsed from 3-level ("1/2/3") or 2-level ("1/515")
// notation and converted to and from their 16-bit wire form.
//
// # Thread Safety
//
// The type table is built at init and never modified. All exported
// functions are safe for concurrent use.
package knx
