// Package auth holds the authentication and authorization core of the todo
// service.
//
// Credentials:
//   - BcryptHasher produces salted bcrypt digests and compares them in
//     constant time. A malformed digest is an error, a mismatch is not.
//
// Tokens:
//   - TokenServiceImpl issues HMAC signed JWTs whose subject is the user's
//     email and parses them back, verifying algorithm, signature and expiry
//     against an injectable Clock.
//
// Flows:
//   - Auther.Login accepts an email or a username and answers every failure
//     with ErrIncorrectCredentials.
//   - Auther.CurrentUser turns a bearer token into a User, distinguishing
//     ErrSignatureExpired from ErrCouldNotValidateCredentials.
//   - Auther.Refresh reissues a token for an already resolved User.
//   - AuthorizeOwner guards user mutations. Todos are scoped by owner at the
//     query level instead.
package auth
