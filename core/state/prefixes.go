package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	accountPrefix        = []byte("account/")
	poolPrefix           = []byte("rewards/pool/")
	poolIndexPrefix      = []byte("rewards/pool-index/")
	positionPrefix       = []byte("rewards/position/")
	tokenPrefix          = []byte("rewards/token/")
	sharePrefix          = []byte("rewards/share/")
	shareIndexPrefix     = []byte("rewards/share-index/")
	treasuryPrefix       = []byte("treasury/record/")
	epochPrefix          = []byte("distribution/epoch/")
	subscriptionPrefix   = []byte("subs/record/")
	subscriptionIndexKey = ethcrypto.Keccak256([]byte("subs/index"))
	versionKey           = ethcrypto.Keccak256([]byte("schema/version"))
)
