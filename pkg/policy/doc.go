// Package policy provides Open Policy Agent (OPA) based authorization
// for work order transitions.
//
// Built-in Rego policies encode which plant roles may perform which
// lifecycle actions; additional .rego files can be loaded from disk and
// are hot reloaded when they change.
//
// # Usage
//
// Creating a policy engine and authorizing an action:
//
//	logger := zerolog.New(os.Stdout)
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//		return err
//	}
//	result, err := eng.Authorize(ctx, &policy.AuthInput{
//		Actor:  actor,
//		Action: workorder.ActionCancel,
//		Order:  policy.SummarizeOrder(order),
//	})
//	if !result.Allowed {
//		// surface result.Violations to the caller
//	}
package policy
