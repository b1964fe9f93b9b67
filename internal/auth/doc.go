// Package auth owns user credentials: registration, password verification,
// administrative constraints (block, delete, forced reset) and single-use
// password reset tokens. Failures are returned as samber/oops errors carrying
// one of the Code* values; use Code to read it back.
package auth
