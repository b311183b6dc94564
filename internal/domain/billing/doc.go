// Package billing provides the durable-medical-equipment billing calculator.
//
// Every function in this package is pure: it depends only on its arguments, never
// reads the clock, and is safe to call concurrently.
//
// Responsibilities:
//   - Allowable amounts per billing month for each SaleRentType schedule
//   - Billable amounts (allowable amount, then discount, then tax)
//   - Frequency conversion multipliers between ordered and billed cadences
//   - Quantity-tiered multipliers (QuantityRule)
//   - Conditional modifiers (InvoiceModifier) with typed attribute rules
//
// Malformed rule or modifier sets degrade to a safe default (0 or the linear
// quantity) instead of failing, so one bad configuration row cannot abort a batch.
// Caller input that violates a precondition returns a shared.ValidationError.
package billing
