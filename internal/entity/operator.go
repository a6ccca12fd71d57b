package entity

// OperatorLoginData identifies the caller of operator-only routes, taken
// from the access token claims.
type OperatorLoginData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
