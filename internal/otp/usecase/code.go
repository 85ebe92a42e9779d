package usecase

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

var codeSpan = big.NewInt(entity.CodeMax - entity.CodeMin + 1)

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+entity.CodeMin, 10), nil
}

// codeMaterial binds a code to the challenge key and its owner. A code
// reissued under the same key and owner keeps its digest, which is how the
// store recognises a superseded code.
func codeMaterial(key entity.Key, ownerID int64, code string) string {
	return fmt.Sprintf("%s:%s:%d:%d:%s", key.Purpose, key.Destination, key.SubjectID, ownerID, code)
}
