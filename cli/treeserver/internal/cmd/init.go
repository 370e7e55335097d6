package cmd

import (
	"log"
	"path"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aa8y/scrypto/application"
	"github.com/aa8y/scrypto/application/server"
	"github.com/aa8y/scrypto/application/testutil"
	"github.com/aa8y/scrypto/cli"
	"github.com/aa8y/scrypto/crypto/sign"
	"github.com/aa8y/scrypto/utils"
)

// initCmd represents the init command
var initCmd = cli.NewInitCommand("authenticated tree server", initRunFunc)

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".", "Location of directory for storing generated files")
	initCmd.Flags().IntP("key-length", "k", 32, "Fixed key length of the tree in bytes")
	initCmd.Flags().IntP("value-length", "v", 0, "Fixed value length of the tree in bytes (0 for variable)")
	initCmd.Flags().BoolP("cert", "c", false, "Generate self-signed ssl keys/cert with sane defaults")
}

func initRunFunc(cmd *cobra.Command, args []string) {
	dir := cmd.Flag("dir").Value.String()
	keyLength, err := cmd.Flags().GetInt("key-length")
	if err != nil {
		log.Fatal(err)
	}
	valueLength, err := cmd.Flags().GetInt("value-length")
	if err != nil {
		log.Fatal(err)
	}
	cert, err := strconv.ParseBool(cmd.Flag("cert").Value.String())
	if err != nil {
		cert = false
	}
	mkConfig(dir, keyLength, valueLength, cert)
	mkSigningKey(dir)
	if cert {
		if err := testutil.CreateTLSCert(dir); err != nil {
			log.Println(err)
		}
	}
}

func mkConfig(dir string, keyLength, valueLength int, cert bool) {
	file := path.Join(dir, "config.toml")
	tcpAddr := &application.ServerAddress{
		Address: "tcp://0.0.0.0:3000",
	}
	if cert {
		tcpAddr.TLSCertPath = "server.pem"
		tcpAddr.TLSKeyPath = "server.key"
	}
	addrs := []*server.Address{
		{
			ServerAddress: &application.ServerAddress{
				Address: "unix:///tmp/treeserver.sock",
			},
			AllowModification: true,
		},
		{
			ServerAddress: tcpAddr,
		},
	}
	logger := &application.LoggerConfig{
		EnableStacktrace: true,
		Environment:      "development",
		Path:             "treeserver.log",
	}

	conf := server.NewConfig(file, "toml", addrs, logger,
		keyLength, valueLength, "", "sign.priv", "tree.db")
	if err := conf.Save(); err != nil {
		log.Println(err)
	}
}

func mkSigningKey(dir string) {
	sk, err := sign.GenerateKey(nil)
	if err != nil {
		log.Print(err)
		return
	}
	pk, _ := sk.Public()
	if err := utils.WriteFile(path.Join(dir, "sign.priv"), sk, 0600); err != nil {
		log.Println(err)
		return
	}
	if err := utils.WriteFile(path.Join(dir, "sign.pub"), pk, 0600); err != nil {
		log.Println(err)
		return
	}
}
