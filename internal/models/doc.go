// Package models defines the core domain models for Nekolators.
//
// # Calculation kinds
//
// Two kinds of calculation are stored:
//   - Calculation: the basic calculator. Every participant types a price
//     expression ("15000+3000") and shares the discount and tax in
//     proportion to their total.
//   - ExpertCalculation: an itemized receipt. Items are assigned to one or
//     more persons and each item is split evenly among its assignees.
//
// ShortLink maps a short base-36 code to either kind of calculation.
//
// # Design Principles
//
//  1. Participants are identified by client-chosen string IDs, not accounts.
//  2. Relationships use ID strings instead of pointers (Assignment links an
//     item ID to a person ID).
//  3. Raw user input (price and adjustment expressions) is stored next to the
//     resolved numbers so a calculation can be re-edited exactly as typed.
package models
