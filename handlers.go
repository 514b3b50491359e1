package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"resit/models"
	"resit/pkg/ocr"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// scanRunner drives the OCR pipeline for all request handlers. The tesseract
// recognizer creates one client per call, so a single runner is safe to share.
var scanRunner = &ocr.Runner{Rec: &ocr.TesseractRecognizer{}}

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)
	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)
	authGroup.POST("/scan", scanReceiptHandler)
	authGroup.GET("/scans", listScansHandler)
	authGroup.GET("/scans/export.csv", exportScansCSVHandler)
	authGroup.GET("/scans/:id", getScanHandler)
	authGroup.GET("/scans/:id/text", getScanTextHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		c.Set("username", username)
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// getUserFromContext fetches the currently authenticated user using the username set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	unameVal, _ := c.Get("username")
	if unameVal == nil {
		return nil, false
	}
	var user models.User
	if err := db.Where("username = ?", unameVal.(string)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// scanReceiptHandler accepts a multipart receipt image, runs the OCR pipeline
// and stores the result. Form fields: file (required), mode (auto|none|
// denoise|contrast_boost|otsu|adaptive, default auto), margin (auto-selection
// margin, default 0.01).
func scanReceiptHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > 10*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large (max 10MB)"})
		return
	}

	opts := ocr.DefaultOptions()
	modeTag := c.DefaultPostForm("mode", "auto")
	if modeTag != "auto" {
		mode, err := ocr.ParseMode(modeTag)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Auto = false
		opts.Mode = mode
	}
	if v := c.PostForm("margin"); v != "" {
		margin, err := strconv.ParseFloat(v, 64)
		if err != nil || margin < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid margin"})
			return
		}
		opts.Margin = margin
	}

	// the client controls file.Filename; keep only the base name so it can
	// never point outside the uploads dir
	fileName := filepath.Base(file.Filename)
	if fileName == "." || fileName == ".." || fileName == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	}
	baseDir := filepath.Join(uploadBaseDir(), "receipts")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	fullPath := filepath.Join(baseDir, fileName)
	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	img, err := imaging.Open(fullPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unreadable image: %v", err)})
		return
	}

	scan := models.Scan{
		UserID:      user.ID,
		FileName:    fileName,
		StorePath:   fullPath,
		ContentType: file.Header.Get("Content-Type"),
	}
	// Re-scanning the same file updates the existing row instead of
	// duplicating it.
	var existing models.Scan
	if err := db.Where("user_id = ? AND file_name = ?", user.ID, fileName).First(&existing).Error; err == nil {
		scan = existing
		scan.StorePath = fullPath
		scan.ContentType = file.Header.Get("Content-Type")
	}

	res, err := scanRunner.ScanImage(img, opts)
	if err != nil {
		// Recognizer/transform failures are the caller's to see; the row is
		// kept so failed receipts can be reviewed and retried.
		scan.Failed = true
		scan.FailedReason = snippetStr(err.Error(), 250)
		db.Save(&scan)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "id": scan.ID})
		return
	}

	scan.Mode = res.Outcome.Mode.String()
	scan.MeanConfidence = res.Outcome.MeanConfidence
	scan.BlendedScore = res.Outcome.BlendedScore
	scan.Merchant = res.Fields.Merchant
	scan.Date = res.Fields.Date
	scan.Totals = strings.Join(res.Fields.Totals, "\n")
	scan.RawText = res.RawText
	scan.CleanText = res.CleanText
	scan.Failed = false
	scan.FailedReason = ""
	if err := db.Save(&scan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	c.JSON(http.StatusOK, scanResponse(&scan))
}

// scanResponse shapes one scan row for JSON consumers.
func scanResponse(s *models.Scan) gin.H {
	return gin.H{
		"id":              s.ID,
		"file_name":       s.FileName,
		"mode":            s.Mode,
		"mean_confidence": s.MeanConfidence,
		"blended_score":   s.BlendedScore,
		"merchant":        s.Merchant,
		"date":            s.Date,
		"totals":          splitTotals(s.Totals),
		"clean_text":      s.CleanText,
		"failed":          s.Failed,
	}
}

func splitTotals(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, "\n")
}

// listScansHandler lists recent scans for the authenticated user.
func listScansHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Scan
	if err := db.Where("user_id = ?", user.ID).Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, scanResponse(&items[i]))
	}
	c.JSON(http.StatusOK, out)
}

func getScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var s models.Scan
	if err := db.First(&s, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if s.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, scanResponse(&s))
}

// getScanTextHandler returns both text copies of a scan: the raw recognized
// text extraction ran on, and the cleaned text meant for display.
func getScanTextHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var s models.Scan
	if err := db.First(&s, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if s.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"raw_text": s.RawText, "clean_text": s.CleanText})
}

// exportScansCSVHandler streams the user's scan history as CSV. Only the
// first two total candidates are exported, matching what a reviewer needs at
// a glance.
func exportScansCSVHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Scan
	if err := db.Where("user_id = ? AND failed = ?", user.ID, false).Order("id asc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="receipt_scan_history.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"file", "chosen_mode", "conf", "score", "merchant", "date", "totals"})
	for _, s := range items {
		totals := splitTotals(s.Totals)
		if len(totals) > 2 {
			totals = totals[:2]
		}
		_ = w.Write([]string{
			s.FileName,
			s.Mode,
			strconv.FormatFloat(s.MeanConfidence, 'f', 3, 64),
			strconv.FormatFloat(s.BlendedScore, 'f', 3, 64),
			s.Merchant,
			s.Date,
			strings.Join(totals, ", "),
		})
	}
	w.Flush()
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	rt := models.RefreshToken{UserID: userID, TokenHash: hex.EncodeToString(h[:]), ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// findRefreshTokenByRaw looks a refresh token record up by its raw token string.
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", hex.EncodeToString(h[:])).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}

// snippetStr shortens s for storage in bounded columns.
func snippetStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
