// Package moderation is the text moderation engine. It decides whether a
// message may be forwarded to downstream processing or must be rejected
// with a stable category key.
//
// The engine is deterministic and does no I/O. A RuleSet is built once and
// shared; an Engine runs the length bounds, the whitelist and then a fixed
// sequence of stages (profanity, links, spam, suspicious patterns, context,
// behavior), stopping at the first violation.
package moderation
