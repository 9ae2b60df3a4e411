package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength 短码固定长度
const CodeLength = 6

// GenerateCode 从密码学安全随机源生成 62 进制短码
func GenerateCode(length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String()
}
