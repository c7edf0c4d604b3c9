// Package auth implements account authentication: HMAC-signed access and
// refresh tokens, bcrypt password hashing, and the registration, login and
// password reset flows built on them.
package auth
