package server

import (
	"github.com/aa8y/scrypto/application"
	"github.com/aa8y/scrypto/crypto/sign"
	"github.com/aa8y/scrypto/utils"
)

// An Address describes a server's connection.
// Allowing modification has to be specified explicitly for each
// connection; digest and lookup requests are allowed by default.
// One can think of a modification as a "write" to the tree, while the
// other request types are "reads". So, by default, addresses are
// "read-only".
type Address struct {
	*application.ServerAddress
	AllowModification bool `toml:"allow_modification,omitempty"`
}

// A Config contains configuration values which are read at
// initialization time from a TOML format configuration file.
type Config struct {
	*application.CommonConfig
	// KeyLength is the fixed key length of the tree, in bytes.
	KeyLength int `toml:"key_length"`
	// ValueLength is the fixed value length of the tree, in bytes;
	// zero means variable-length values.
	ValueLength int `toml:"value_length,omitempty"`
	// Hasher names the registered label hasher the tree uses.
	Hasher string `toml:"hasher,omitempty"`
	// SignKeyPath is the path of the server's signing private key.
	SignKeyPath string `toml:"sign_key_path"`
	// DatabasePath is the directory of the LevelDB store holding the
	// versioned tree.
	DatabasePath string `toml:"database_path"`
	// Addresses contains the server's connections configuration.
	Addresses []*Address `toml:"addresses"`

	signKey sign.PrivateKey
}

var _ application.AppConfig = (*Config)(nil)

// NewConfig initializes a new tree server configuration with the given
// server addresses, logger configuration, tree shape, signing key path
// and database path.
func NewConfig(file, encoding string, addrs []*Address,
	logConfig *application.LoggerConfig, keyLength, valueLength int,
	hasher, signKeyPath, dbPath string) *Config {
	var conf = Config{
		CommonConfig: application.NewCommonConfig(file, encoding, logConfig),
		KeyLength:    keyLength,
		ValueLength:  valueLength,
		Hasher:       hasher,
		SignKeyPath:  signKeyPath,
		DatabasePath: dbPath,
		Addresses:    addrs,
	}
	return &conf
}

// Load initializes a server configuration from the given file using
// the given encoding. It reads the signing key pair into the Config
// instance and resolves the relative paths of the TLS certificate files
// of each Address, the database and the log file against the directory
// of the config file.
func (conf *Config) Load(file, encoding string) error {
	conf.CommonConfig = application.NewCommonConfig(file, encoding, nil)
	if err := conf.GetLoader().Decode(conf); err != nil {
		return err
	}

	signKey, err := application.LoadSigningKey(conf.SignKeyPath, file)
	if err != nil {
		return err
	}
	conf.signKey = signKey

	conf.DatabasePath = utils.ResolvePath(conf.DatabasePath, file)
	for _, addr := range conf.Addresses {
		if addr.TLSCertPath != "" {
			addr.TLSCertPath = utils.ResolvePath(addr.TLSCertPath, file)
		}
		if addr.TLSKeyPath != "" {
			addr.TLSKeyPath = utils.ResolvePath(addr.TLSKeyPath, file)
		}
	}
	if conf.Logger != nil && conf.Logger.Path != "" {
		conf.Logger.Path = utils.ResolvePath(conf.Logger.Path, file)
	}
	return nil
}

// Save writes a server's configuration.
func (conf *Config) Save() error {
	return conf.GetLoader().Encode(conf)
}

// GetPath returns the server's configuration file path.
func (conf *Config) GetPath() string {
	return conf.Path
}
