// Package token 为订阅句柄签名，使只有创建订阅的客户端能够显式取消它。
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload 定义了需要被签名的数据结构。
type Payload struct {
	Handle string   `json:"h"`
	Cities []string `json:"c,omitempty"`
}

// Signer 持有HMAC密钥。
type Signer struct {
	key []byte
}

// NewSigner 使用给定的密钥创建签名器；密钥为空时生成一个32字节的随机密钥，
// 这种情况下签名在进程重启后失效。
func NewSigner(secret string) (*Signer, error) {
	if secret != "" {
		return &Signer{key: []byte(secret)}, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("无法生成安全的密钥: %w", err)
	}
	return &Signer{key: key}, nil
}

// Sign 为 payload 生成Base64编码的HMAC-SHA256签名。
func (s *Signer) Sign(payload Payload) (string, error) {
	mac, err := s.mac(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(mac), nil
}

// Verify 验证 payload 与签名是否匹配。
func (s *Signer) Verify(payload Payload, signatureB64 string) bool {
	expected, err := s.mac(payload)
	if err != nil {
		return false
	}
	actual, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return false
	}
	// 时间恒定的比较
	return hmac.Equal(expected, actual)
}

func (s *Signer) mac(payload Payload) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.New("无法序列化Token payload")
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payloadBytes)
	return mac.Sum(nil), nil
}
