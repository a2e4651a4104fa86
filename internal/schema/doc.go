// Package schema declares tool parameters and checks them.
//
// # Rules
//
// A Schema is an ordered list of fields, each with an ordered list of rules
// drawn from a closed set:
//
//	schema.New(
//	    schema.F("content_id", schema.Required(), schema.TypeIs(schema.Int), schema.Min(1)),
//	    schema.F("status", schema.Optional(), schema.TypeIs(schema.String),
//	        schema.OneOf("publish", "draft")),
//	)
//
// # Validation
//
// Validate runs every field. Missing required fields report
// "Field '<name>' is required"; missing optional fields are skipped. The
// remaining rules of a present field form an AND-chain and the first failure
// becomes that field's only message.
//
// # Compilation
//
// Compile turns the same declarations into the JSON Schema advertised by
// tools/list. It shares no code path with Validate.
package schema
