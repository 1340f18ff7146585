package security

// UnsubscribeClaims identify the recipient of a marketing email.
// They do not expire so old emails keep a working opt-out link.
type UnsubscribeClaims struct {
	UserID uint `json:"uid"`
}

func GenerateUnsubscribeToken(userID uint, secret string) (string, error) {
	return sign(UnsubscribeClaims{UserID: userID}, secret)
}

func VerifyUnsubscribeToken(token, secret string) (uint, error) {
	var claims UnsubscribeClaims
	if err := verify(token, secret, &claims); err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
