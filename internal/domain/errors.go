package domain

import "errors"

// ErrDuplicateNonce marks a nonce collision in the dedup index.
// Near-impossible operationally, but it must surface as a Failed
// result rather than crash the engine.
var ErrDuplicateNonce = errors.New("duplicate message nonce")
