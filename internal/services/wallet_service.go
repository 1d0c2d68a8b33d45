package services

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fitness_portal_backend/internal/models"
	"fitness_portal_backend/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	qrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrWalletNotConfigured signals missing platform credentials. Handlers
	// map it to an instructional configuration error instead of a generic
	// failure.
	ErrWalletNotConfigured = errors.New("wallet platform credentials not configured")

	ErrUnsupportedWalletType = errors.New("unsupported wallet type")
)

// WalletPassPayload is the member snapshot rendered onto a pass.
type WalletPassPayload struct {
	MemberID     int64
	MembershipID string
	FullName     string
	Email        string
	Points       int
	Design       models.DesignData
}

// WalletPassResult is the issuer outcome for one platform.
type WalletPassResult struct {
	Success    bool   `json:"success"`
	PassID     string `json:"pass_id,omitempty"`
	PassURL    string `json:"pass_url,omitempty"`
	PassType   string `json:"pass_type"`
	MemberID   int64  `json:"member_id"`
	MemberName string `json:"member_name"`
	Message    string `json:"message,omitempty"`
}

// WalletConfig carries the platform credentials.
type WalletConfig struct {
	// Apple
	ApplePassTypeID string
	AppleTeamID     string
	AppleOrgName    string

	// Google
	GoogleIssuerID         string
	GoogleServiceAccount   string // raw service account JSON
	GoogleAllowedOrigins   []string
}

// WalletService renders member data into platform wallet passes.
type WalletService interface {
	GenerateQRDataURL(payload WalletPassPayload) string
	BuildApplePass(payload WalletPassPayload) ([]byte, error)
	BuildGoogleSaveURL(payload WalletPassPayload) (jwtToken string, saveURL string, err error)
	GeneratePass(payload WalletPassPayload, walletType string) *WalletPassResult
}

type walletService struct {
	cfg WalletConfig
	now func() time.Time
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(cfg WalletConfig) WalletService {
	if cfg.AppleOrgName == "" {
		cfg.AppleOrgName = "FITNESSSTUDIO"
	}
	return &walletService{cfg: cfg, now: time.Now}
}

// GenerateQRDataURL encodes the scannable member payload as a PNG data URL.
// On encode failure it falls back to the plain member token.
func (s *walletService) GenerateQRDataURL(payload WalletPassPayload) string {
	qrPayload := map[string]interface{}{
		"type":      "membership",
		"memberId":  payload.MembershipID,
		"timestamp": s.now().Unix(),
		"points":    payload.Points,
		"name":      payload.FullName,
	}
	raw, err := json.Marshal(qrPayload)
	if err != nil {
		return "member:" + payload.MembershipID
	}
	png, err := qrcode.Encode(string(raw), qrcode.Medium, 256)
	if err != nil {
		utils.LogError(err, "QR encoding failed, falling back to plain token")
		return "member:" + payload.MembershipID
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

type applePassField struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
}

// BuildApplePass assembles a .pkpass archive: pass.json, a manifest with the
// SHA-1 of pass.json, and the signature entry. Without a configured
// certificate the signature is a placeholder, which Apple devices reject;
// production deployments must supply a PKCS#7 detached signature.
func (s *walletService) BuildApplePass(payload WalletPassPayload) ([]byte, error) {
	passTypeID := s.cfg.ApplePassTypeID
	if passTypeID == "" {
		passTypeID = "pass.com.fitnessstudio.membership"
	}
	teamID := s.cfg.AppleTeamID
	if teamID == "" {
		teamID = "PLACEHOLDER"
	}

	design := payload.Design
	pass := map[string]interface{}{
		"formatVersion":      1,
		"passTypeIdentifier": passTypeID,
		"serialNumber":       payload.MembershipID,
		"teamIdentifier":     teamID,
		"organizationName":   s.cfg.AppleOrgName,
		"description":        design.CardSubtitle,
		"backgroundColor":    design.PrimaryColor,
		"foregroundColor":    design.TextColor,
		"labelColor":         design.TextColor,
		"generic": map[string]interface{}{
			"primaryFields": []applePassField{
				{Key: "name", Label: design.CardTitle, Value: payload.FullName},
			},
			"secondaryFields": []applePassField{
				{Key: "membership", Label: "Mitgliedsnummer", Value: payload.MembershipID},
				{Key: "points", Label: "Punkte", Value: fmt.Sprintf("%d", payload.Points)},
			},
			"backFields": []applePassField{
				{Key: "email", Label: "E-Mail", Value: payload.Email},
				{Key: "issued", Label: "Ausgestellt", Value: s.now().Format("2006-01-02")},
			},
		},
		"barcode": map[string]interface{}{
			"format":          "PKBarcodeFormatQR",
			"message":         payload.MembershipID,
			"messageEncoding": "iso-8859-1",
		},
	}

	passJSON, err := json.Marshal(pass)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pass.json: %w", err)
	}

	manifest := map[string]string{
		"pass.json": fmt.Sprintf("%x", sha1.Sum(passJSON)),
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest.json: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		data []byte
	}{
		{"pass.json", passJSON},
		{"manifest.json", manifestJSON},
		{"signature", []byte("UNSIGNED-DEMO-PASS")},
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

type googleServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// BuildGoogleSaveURL renders a generic wallet object, signs the save-to-wallet
// JWT with the service account key and returns the save link.
func (s *walletService) BuildGoogleSaveURL(payload WalletPassPayload) (string, string, error) {
	if s.cfg.GoogleIssuerID == "" || s.cfg.GoogleServiceAccount == "" {
		return "", "", ErrWalletNotConfigured
	}

	var account googleServiceAccount
	if err := json.Unmarshal([]byte(s.cfg.GoogleServiceAccount), &account); err != nil {
		return "", "", fmt.Errorf("%w: service account JSON is invalid", ErrWalletNotConfigured)
	}
	if account.ClientEmail == "" || account.PrivateKey == "" {
		return "", "", ErrWalletNotConfigured
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return "", "", fmt.Errorf("%w: private key is not valid PEM", ErrWalletNotConfigured)
	}

	design := payload.Design
	objectID := fmt.Sprintf("%s.%s", s.cfg.GoogleIssuerID, nonAlphanumeric.ReplaceAllString(payload.MembershipID, ""))
	classID := fmt.Sprintf("%s.membership", s.cfg.GoogleIssuerID)

	genericObject := map[string]interface{}{
		"id":                 objectID,
		"classId":            classID,
		"state":              "ACTIVE",
		"hexBackgroundColor": design.PrimaryColor,
		"cardTitle": map[string]interface{}{
			"defaultValue": map[string]string{"language": "de", "value": design.CardTitle},
		},
		"header": map[string]interface{}{
			"defaultValue": map[string]string{"language": "de", "value": payload.FullName},
		},
		"subheader": map[string]interface{}{
			"defaultValue": map[string]string{"language": "de", "value": design.CardSubtitle},
		},
		"textModulesData": []map[string]string{
			{"id": "membership", "header": "Mitgliedsnummer", "body": payload.MembershipID},
			{"id": "points", "header": "Punkte", "body": fmt.Sprintf("%d", payload.Points)},
		},
		"barcode": map[string]string{
			"type":  "QR_CODE",
			"value": payload.MembershipID,
		},
	}

	origins := s.cfg.GoogleAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss":     account.ClientEmail,
		"aud":     "google",
		"typ":     "savetowallet",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
		"origins": origins,
		"payload": map[string]interface{}{
			"genericObjects": []map[string]interface{}{genericObject},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign wallet JWT: %w", err)
	}
	return signed, "https://pay.google.com/gp/v/save/" + signed, nil
}

// GeneratePass issues a pass for the requested platform. Failures other than
// missing configuration are folded into an unsuccessful result so callers can
// surface the platform message without aborting.
func (s *walletService) GeneratePass(payload WalletPassPayload, walletType string) *WalletPassResult {
	result := &WalletPassResult{
		PassType:   strings.ToLower(walletType),
		MemberID:   payload.MemberID,
		MemberName: payload.FullName,
	}

	switch result.PassType {
	case models.WalletTypeApple:
		if _, err := s.BuildApplePass(payload); err != nil {
			result.Message = fmt.Sprintf("Apple Wallet pass generation failed: %v", err)
			return result
		}
		result.Success = true
		result.PassID = payload.MembershipID
		result.PassURL = fmt.Sprintf("/api/v1/wallet/apple/%d", payload.MemberID)
		result.Message = "Apple Wallet pass ready for download"
	case models.WalletTypeGoogle:
		_, saveURL, err := s.BuildGoogleSaveURL(payload)
		if err != nil {
			if errors.Is(err, ErrWalletNotConfigured) {
				result.Message = "Google Wallet is not configured. Set GOOGLE_WALLET_ISSUER_ID and GOOGLE_WALLET_SERVICE_ACCOUNT_KEY."
				return result
			}
			result.Message = fmt.Sprintf("Google Wallet pass generation failed: %v", err)
			return result
		}
		result.Success = true
		result.PassID = payload.MembershipID
		result.PassURL = saveURL
		result.Message = "Google Wallet save link created"
	default:
		result.Message = ErrUnsupportedWalletType.Error()
	}
	return result
}
