// Package types defines the shared data model for the recall answer cache:
// episodes, derived facts, persisted question/answer records, and the chat
// message envelope used by language model clients.
package types
