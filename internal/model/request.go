package model

type SignUpRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleSignInRequest struct {
	Token string `json:"token"`
}

type GitHubSignInRequest struct {
	Code string `json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type CreatePlanRequest struct {
	Name  string `json:"name"`
	Brief string `json:"brief"`
}
