// Package expirer implements the deadline service backing the request
// ledger. Targets are named strings with unix-second deadlines; handlers
// fire once per expired target.
package expirer
