package controllers

import (
	"net/http"
	"slices"

	"github.com/eliotaldersonfsociety/texasstore-api/backend"
	"github.com/eliotaldersonfsociety/texasstore-api/middlewares"
	"github.com/eliotaldersonfsociety/texasstore-api/models"
	"github.com/gin-gonic/gin"
)

const (
	// Standard response messages
	msgInvalidInput        = "invalid input"
	msgPasswordMismatch    = "passwords do not match"
	msgLoginSuccess        = "Logged in successfully"
	msgRegisterSuccess     = "Account created successfully"
	msgLogoutSuccess       = "Logged out successfully"
	msgSessionExpired      = "Session expired, please log in again"
	msgUpstreamUnavailable = "Service temporarily unavailable, try again"
	msgRecordAfterPayment  = "Payment received but the purchase could not be saved; retry to finish"
	msgRecordAfterExpiry   = "Payment received but the purchase could not be saved; log in again and retry to finish"
	msgFailedToSaveSession = "failed to save session"
	msgAvatarUpdated       = "Avatar updated"
	msgUnknownAvatar       = "unknown avatar"
	msgUploadsDisabled     = "Avatar uploads are not configured"
)

// AvatarPresets are the built-in avatars a shopper can pick.
var AvatarPresets = []string{
	"/avatar1.png", "/avatar2.png", "/avatar3.png", "/avatar4.png",
	"/avatar5.png", "/avatar6.png", "/avatar7.png", "/avatar8.png",
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// Login authenticates against the backend and keeps the session.
func (c *Controller) Login(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	client := middlewares.CurrentClient(ctx)
	res, err := c.Accounts.Login(ctx.Request.Context(), loginData.Email, loginData.Password)
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}

	c.startSession(ctx, res, http.StatusOK, msgLoginSuccess)
}

// Register creates an account and logs it in.
func (c *Controller) Register(ctx *gin.Context) {
	var registerData models.RegisterData
	if err := ctx.ShouldBindJSON(&registerData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if registerData.Password != registerData.Repassword {
		sendErrorResponse(ctx, http.StatusBadRequest, msgPasswordMismatch)
		return
	}

	client := middlewares.CurrentClient(ctx)
	res, err := c.Accounts.Register(ctx.Request.Context(), registerData)
	if err != nil {
		c.handleError(ctx, client, err)
		return
	}

	c.startSession(ctx, res, http.StatusCreated, msgRegisterSuccess)
}

func (c *Controller) startSession(ctx *gin.Context, res *backend.AuthResult, status int, message string) {
	client := middlewares.CurrentClient(ctx)
	if err := client.Session.SetSession(ctx.Request.Context(), res.User, res.Token); err != nil {
		c.Logger.Println("Session save error:", err)
		respondWithError(ctx, http.StatusBadGateway, msgFailedToSaveSession, err)
		return
	}

	user, _, _ := client.Session.Current()
	sendJSONResponse(ctx, status, gin.H{"message": message, "user": user})
}

// Logout forgets the session, leaves checkout and empties the cart. The
// avatar is kept.
func (c *Controller) Logout(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)
	reqCtx := ctx.Request.Context()

	client.Checkout.Reset(reqCtx)
	if err := client.Session.ClearSession(reqCtx); err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to clear session", err)
		return
	}
	if err := client.Cart.Clear(reqCtx); err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to clear cart", err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgLogoutSuccess})
}

func (c *Controller) GetSession(ctx *gin.Context) {
	client := middlewares.CurrentClient(ctx)
	user, _, loading := client.Session.Current()

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"user":     user,
		"loggedIn": user != nil,
		"loading":  loading,
		"isAdmin":  client.Session.IsAdmin(),
		"avatar":   client.Session.SavedAvatar(ctx.Request.Context()),
	})
}

func (c *Controller) GetAvatars(ctx *gin.Context) {
	sendJSONResponse(ctx, http.StatusOK, gin.H{"avatars": AvatarPresets})
}

// SetAvatar picks one of the preset avatars.
func (c *Controller) SetAvatar(ctx *gin.Context) {
	var body struct {
		Avatar string `json:"avatar" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if !slices.Contains(AvatarPresets, body.Avatar) {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUnknownAvatar)
		return
	}

	c.saveAvatar(ctx, body.Avatar)
}

// UploadAvatar stores an uploaded image in S3 and uses it as the avatar.
func (c *Controller) UploadAvatar(ctx *gin.Context) {
	if c.Uploader == nil {
		sendErrorResponse(ctx, http.StatusServiceUnavailable, msgUploadsDisabled)
		return
	}

	file, err := ctx.FormFile("avatar")
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "No file uploaded", err)
		return
	}

	f, err := file.Open()
	if err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid form data", err)
		return
	}
	defer f.Close()

	client := middlewares.CurrentClient(ctx)
	url, err := c.Uploader.UploadAvatar(ctx.Request.Context(), client.ID, file.Filename, file.Header.Get("Content-Type"), f)
	if err != nil {
		c.Logger.Printf("Error uploading avatar %s: %v", file.Filename, err)
		respondWithError(ctx, http.StatusBadGateway, "Failed to upload avatar", err)
		return
	}

	c.saveAvatar(ctx, url)
}

func (c *Controller) saveAvatar(ctx *gin.Context, url string) {
	client := middlewares.CurrentClient(ctx)
	if err := client.Session.UpdateAvatar(ctx.Request.Context(), url); err != nil {
		respondWithError(ctx, http.StatusInternalServerError, "Failed to save avatar", err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": msgAvatarUpdated, "avatar": url})
}
