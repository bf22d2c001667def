package dagbok

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
)

// Special token strings expected in WordPiece vocabularies.
const (
	padToken = "[PAD]"
	unkToken = "[UNK]"
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	bosToken = "[BOS]"
	eosToken = "[EOS]"
)

// Vocabulary is an ordered token-to-id mapping loaded from a newline-delimited
// vocab file. Token ids are line numbers (0-indexed). Immutable after load.
type Vocabulary struct {
	tokenToID map[string]int64
	idToToken []string

	padID int64
	unkID int64
	clsID int64
	sepID int64
	bosID int64
	eosID int64
}

// LoadVocabulary reads a vocab file where each line is one token.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(ErrVocab, "load vocabulary", err)
	}
	defer f.Close()

	var tokens []string
	tokenToID := make(map[string]int64, 32000)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := scanner.Text()
		tokenToID[tok] = int64(len(tokens))
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, newError(ErrVocab, "load vocabulary", errors.Wrap(err, "read"))
	}
	if len(tokens) == 0 {
		return nil, newError(ErrVocab, "load vocabulary", errors.Errorf("file is empty: %s", path))
	}

	v := &Vocabulary{
		tokenToID: tokenToID,
		idToToken: tokens,
	}

	specials := []struct {
		name string
		dest *int64
	}{
		{padToken, &v.padID},
		{unkToken, &v.unkID},
		{clsToken, &v.clsID},
		{sepToken, &v.sepID},
	}
	for _, s := range specials {
		id, ok := tokenToID[s.name]
		if !ok {
			return nil, newError(ErrVocab, "load vocabulary", errors.Errorf("missing special token %s", s.name))
		}
		*s.dest = id
	}

	// BOS/EOS are optional; BERT-style vocabularies fall back to CLS/SEP.
	if id, ok := tokenToID[bosToken]; ok {
		v.bosID = id
	} else {
		v.bosID = v.clsID
	}
	if id, ok := tokenToID[eosToken]; ok {
		v.eosID = id
	} else {
		v.eosID = v.sepID
	}

	return v, nil
}

// ID returns the id for token, or the [UNK] id if absent.
func (v *Vocabulary) ID(token string) int64 {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	return v.unkID
}

// Contains reports whether token is in the vocabulary.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.tokenToID[token]
	return ok
}

// Token returns the token string for id, or "" if out of range.
func (v *Vocabulary) Token(id int64) string {
	if id < 0 || id >= int64(len(v.idToToken)) {
		return ""
	}
	return v.idToToken[id]
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocabulary) Size() int {
	return len(v.idToToken)
}

func (v *Vocabulary) isSpecial(id int64) bool {
	switch id {
	case v.padID, v.unkID, v.clsID, v.sepID, v.bosID, v.eosID:
		return true
	}
	return false
}
