// Package schema validates and decodes property values.
//
// Each property kind maps to a Type that checks a raw value, as found in a
// stored document or sent by a client, before it is turned into a typed
// domain.Value:
//
//	text      -> Text()
//	number    -> Number()
//	checkbox  -> Bool()
//	dropdown  -> Choice(choices...)
//	list      -> Options()
//
// Decode performs the conversion for one property and ValidateBag checks the
// required fields of a whole bag:
//
//	v, err := schema.Decode(prop, raw)
//	if err != nil {
//	    var verr *schema.ValidationError
//	    errors.As(err, &verr)
//	}
//
// Failures are reported as *ValidationError, grouped in an *AggregateError
// when several fields are checked at once.
package schema
