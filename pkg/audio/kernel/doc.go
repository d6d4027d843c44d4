// Package kernel synthesizes FIR coefficient vectors for the streaming filters.
package kernel
