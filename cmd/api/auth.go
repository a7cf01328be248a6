package main

import (
	"errors"
	"fmt"
	"net/http"

	"jewels/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

type CreateTokenPayload struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// createTokenHandler is the admin login. An unknown username and a wrong
// password produce the same generic 401.
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("username and password are required"))
		return
	}

	user, err := app.store.Users.GetByUsername(r.Context(), payload.Username)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid username or password"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid username or password"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, "admin")
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil || !token.Valid {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token"))
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid claims"))
		return
	}

	subClaim, ok := claims["sub"].(float64)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid sub claim"))
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), int64(subClaim))
	if err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, "admin")
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
