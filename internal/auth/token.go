package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims do access token. SquadID vai no token para o escopo por squad
// não precisar de consulta ao banco a cada requisição.
type Claims struct {
	UserID       uint  `json:"userId"`
	Superusuario bool  `json:"isSuperuser"`
	SquadID      *uint `json:"squadId,omitempty"`
	jwt.RegisteredClaims
}

const DefaultAccessTTL = 15 * time.Minute

var (
	ErrTokenInvalido = errors.New("token inválido")
	ErrTokenExpirado = errors.New("token expirado")
)

// Emissor assina e valida access tokens RS256. Aceita tokens de chaves antigas
// registradas com AdicionarChavePublica, mas só assina com a chave ativa.
type Emissor struct {
	priv      *rsa.PrivateKey
	kid       string
	pubs      map[string]*rsa.PublicKey
	issuer    string
	audience  string
	accessTTL time.Duration
	agora     func() time.Time
}

type OpcoesEmissor struct {
	KID       string
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	// Agora substitui time.Now; usado em testes.
	Agora func() time.Time
}

func NovoEmissor(priv *rsa.PrivateKey, o OpcoesEmissor) (*Emissor, error) {
	if priv == nil {
		return nil, errors.New("chave privada ausente")
	}
	if o.KID == "" || o.Issuer == "" || o.Audience == "" {
		return nil, errors.New("kid, issuer e audience são obrigatórios")
	}
	if o.AccessTTL <= 0 {
		o.AccessTTL = DefaultAccessTTL
	}
	if o.Agora == nil {
		o.Agora = time.Now
	}
	return &Emissor{
		priv:      priv,
		kid:       o.KID,
		pubs:      map[string]*rsa.PublicKey{o.KID: &priv.PublicKey},
		issuer:    o.Issuer,
		audience:  o.Audience,
		accessTTL: o.AccessTTL,
		agora:     o.Agora,
	}, nil
}

// AdicionarChavePublica aceita tokens assinados por uma chave em rotação.
func (e *Emissor) AdicionarChavePublica(kid string, pub *rsa.PublicKey) {
	e.pubs[kid] = pub
}

func (e *Emissor) AccessTTL() time.Duration { return e.accessTTL }

// GerarAccessToken emite um JWT com kid, iss, aud, iat, nbf e jti.
func (e *Emissor) GerarAccessToken(id Identidade) (string, error) {
	now := e.agora()
	claims := &Claims{
		UserID:       id.ID,
		Superusuario: id.Superusuario,
		SquadID:      id.SquadID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    e.issuer,
			Audience:  jwt.ClaimStrings{e.audience},
			Subject:   strconv.FormatUint(uint64(id.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        uuid.NewString(),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = e.kid
	s, err := tok.SignedString(e.priv)
	if err != nil {
		return "", fmt.Errorf("assinar token: %w", err)
	}
	return s, nil
}

// Validar confere assinatura, kid, iss, aud e exp.
func (e *Emissor) Validar(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(e.agora),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		k, _ := t.Header["kid"].(string)
		if k == "" {
			return nil, errors.New("kid ausente")
		}
		pub, ok := e.pubs[k]
		if !ok {
			return nil, errors.New("kid desconhecido")
		}
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpirado
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalido, err)
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalido
	}
	if c.Issuer != e.issuer {
		return nil, fmt.Errorf("%w: issuer", ErrTokenInvalido)
	}
	if !slices.Contains(c.Audience, e.audience) {
		return nil, fmt.Errorf("%w: audience", ErrTokenInvalido)
	}
	return c, nil
}
