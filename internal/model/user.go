package model

// LoginResult is the response of POST /login.  Status is "success" or
// "fail"; Token is optional.
type LoginResult struct {
	Status  string `json:"status"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the remote API accepted the credentials.
func (r LoginResult) Succeeded() bool { return r.Status == "success" }

// UserData is the user record kept in durable storage after login.
type UserData struct {
	Username  string `json:"username"`
	LoginTime string `json:"loginTime"`
}
