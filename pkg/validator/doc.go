// Package validator provides small composable validation rules.
//
// Each rule captures the value it checks; Apply runs them all and returns a
// ValidationErrors value listing every failed field:
//
//	err := validator.Apply(
//		validator.RequiredString("email", in.Email),
//		validator.ValidEmail("email", in.Email),
//		validator.InListString("subscription_status", in.Status, statuses),
//	)
//
// Rules for optional fields are wrapped in When so empty values pass.
package validator
