// Package testutil provides small helpers shared by package tests: fluent
// builders for transcripts and messages, and a recording notifier that
// captures external notifications in delivery order.
package testutil
