package cryptox

// Engine bundles the pipeline functions behind one value so the session can
// depend on an interface. It carries no key state; only the KDF costs.
type Engine struct {
	kdf KDFParams
}

// NewEngine returns an Engine using DefaultKDFParams.
func NewEngine() *Engine {
	return &Engine{kdf: DefaultKDFParams()}
}

// NewEngineWithKDF returns an Engine with custom Argon2id costs. Vaults
// written with non-default costs can only be opened by an Engine configured
// the same way; tests use it to keep derivation fast.
func NewEngineWithKDF(p KDFParams) *Engine {
	return &Engine{kdf: p}
}

func (e *Engine) GenerateParams() (*Params, error) { return GenerateParams() }

func (e *Engine) GenerateSalt() ([SaltSize]byte, error) { return GenerateSalt() }

func (e *Engine) DeriveKey(password, salt []byte) (*SecureBuffer, error) {
	return DeriveKey(password, salt, e.kdf)
}

func (e *Engine) Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	return Encrypt(plaintext, key, iv)
}

func (e *Engine) Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	return Decrypt(ciphertext, key, iv)
}

func (e *Engine) ComputeHMAC(data, key []byte) []byte { return ComputeHMAC(data, key) }

func (e *Engine) VerifyHMAC(data, key, tag []byte) bool { return VerifyHMAC(data, key, tag) }

func (e *Engine) Zeroize(b []byte) { Zeroize(b) }
