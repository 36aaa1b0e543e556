// Package models defines the core domain models for tabshare.
//
// # Models
//
//   - Receipt: a structured receipt produced by the extraction pipeline
//     and user edits; line items are addressed by position index.
//   - Session: a code-addressable splitting session over one receipt,
//     progressing lobby -> active -> finished.
//   - Participant: membership of a user in a session.
//   - Claim: a participant's claim on one line item; items may be claimed
//     by several participants at once (shared items).
//
// # Design Principles
//
//  1. **Composite natural keys**: Participant and Claim identity is
//     (session_id, user_id) and (session_id, item_index, user_id). All
//     shared mutable state is upsert/delete-by-key, which is what lets
//     concurrent writers proceed without coordination.
//  2. **Positional item addressing**: a Claim references its line item by
//     index into Receipt.Items. The item list must never be reordered or
//     mutated once a session references the receipt.
//  3. **Nullable money as pointers**: OCR output is lossy, so every money
//     field the extractor may miss is a *float64. Settlement math treats
//     nil as zero.
//  4. **Avoid circular references**: models carry ID strings, not pointers
//     to other models.
package models
