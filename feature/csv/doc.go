// Package csv loads comma-separated files as sync sources, with the same
// header-plus-rows contract as the excel package.
package csv
