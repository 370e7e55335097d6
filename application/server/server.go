package server

import (
	"github.com/aa8y/scrypto/application"
	"github.com/aa8y/scrypto/avltree"
	"github.com/aa8y/scrypto/crypto"
	"github.com/aa8y/scrypto/crypto/hashers"
	"github.com/aa8y/scrypto/crypto/hashers/blake2b256"
	_ "github.com/aa8y/scrypto/crypto/hashers/sha3256"
	"github.com/aa8y/scrypto/protocol"
	"github.com/aa8y/scrypto/storage/kv"
	"github.com/aa8y/scrypto/storage/kv/avltreekv"
	"github.com/aa8y/scrypto/storage/kv/leveldbkv"
)

// A TreeServer represents a tree server holding the full authenticated
// AVL+ tree. It wraps a BatchProver and its versioned storage with a
// network layer which handles requests/responses and their
// encoding/decoding. Each modification batch is persisted as a new
// version before its proof and new signed digest are returned.
type TreeServer struct {
	*application.ServerBase
	conf    *Config
	prover  *avltree.BatchProver
	db      kv.DB
	version uint64
}

// NewTreeServer creates a tree server from the given configuration,
// reopening the latest stored tree version if the database holds one.
func NewTreeServer(conf *Config) (*TreeServer, error) {
	perms := make(map[*application.ServerAddress]map[int]bool)
	for i := 0; i < len(conf.Addresses); i++ {
		addr := conf.Addresses[i]
		perms[addr.ServerAddress] = make(map[int]bool)
		perms[addr.ServerAddress][protocol.DigestType] = true
		perms[addr.ServerAddress][protocol.LookupType] = true
		perms[addr.ServerAddress][protocol.ModifyType] = addr.AllowModification
	}

	treeConf, err := treeConfig(conf)
	if err != nil {
		return nil, err
	}
	db, err := leveldbkv.OpenDB(conf.DatabasePath)
	if err != nil {
		return nil, err
	}

	server := &TreeServer{
		ServerBase: application.NewServerBase(conf.CommonConfig, "Listen", perms),
		conf:       conf,
		db:         db,
	}
	version, err := avltreekv.LatestVersion(db)
	switch {
	case err == nil:
		prover, err := avltreekv.LoadVersion(db, treeConf, version)
		if err != nil {
			db.Close()
			return nil, err
		}
		server.prover = prover
		server.version = version
	case err == db.ErrNotFound():
		server.prover = avltree.NewBatchProver(treeConf)
	default:
		db.Close()
		return nil, err
	}
	return server, nil
}

func treeConfig(conf *Config) (avltree.Config, error) {
	h := conf.Hasher
	if h == "" {
		h = blake2b256.AVL_Label_BLAKE2b_256
	}
	hasher, err := hashers.NewLabelHasher(h)
	if err != nil {
		return avltree.Config{}, err
	}
	return avltree.Config{
		KeyLength:   conf.KeyLength,
		ValueLength: conf.ValueLength,
		Hasher:      hasher,
	}, nil
}

// HandleRequests validates the request message and passes it to the
// appropriate operation handler according to the request type.
func (server *TreeServer) HandleRequests(req *protocol.Request) *protocol.Response {
	switch req.Type {
	case protocol.DigestType:
		if msg, ok := req.Request.(*protocol.DigestRequest); ok {
			return server.handleDigest(msg)
		}
	case protocol.LookupType:
		if msg, ok := req.Request.(*protocol.LookupRequest); ok {
			return server.handleLookup(msg)
		}
	case protocol.ModifyType:
		if msg, ok := req.Request.(*protocol.ModifyRequest); ok {
			return server.handleModify(msg)
		}
	}
	return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
}

func (server *TreeServer) handleDigest(msg *protocol.DigestRequest) *protocol.Response {
	nonce := msg.Nonce
	if len(nonce) == 0 {
		var err error
		if nonce, err = crypto.MakeRand(); err != nil {
			server.Logger().Error("Cannot draw a digest nonce",
				"error", err.Error())
			return protocol.NewErrorResponse(protocol.ErrInternalServer)
		}
	}
	digest := server.prover.Digest()
	sig := server.conf.signKey.Sign(append(append([]byte{}, digest...), nonce...))
	return protocol.NewDigestResponse(digest, nonce, sig)
}

func (server *TreeServer) handleLookup(msg *protocol.LookupRequest) *protocol.Response {
	digest := server.prover.Digest()
	value, present, err := server.prover.PerformOneOperation(avltree.NewLookup(msg.Key))
	if err != nil {
		return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
	}
	proof := server.prover.GenerateProof()
	return protocol.NewLookupResponse(digest, value, present, proof)
}

func (server *TreeServer) handleModify(msg *protocol.ModifyRequest) *protocol.Response {
	previousDigest := server.prover.Digest()
	oldValues := make([]*protocol.OldValue, 0, len(msg.Ops))
	for _, treeOp := range msg.Ops {
		op, ok := decodeOp(treeOp)
		if !ok {
			server.prover.RollbackBatch()
			return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
		}
		value, present, err := server.prover.PerformOneOperation(op)
		if err != nil {
			server.Logger().Warn("Tree operation rejected",
				"op", treeOp.Op, "error", err.Error())
			server.prover.RollbackBatch()
			return protocol.NewErrorResponse(protocol.ErrOperationFailed)
		}
		oldValues = append(oldValues, &protocol.OldValue{Value: value, Present: present})
	}
	proof := server.prover.GenerateProof()
	server.version++
	if err := avltreekv.StoreVersion(server.db, server.prover, server.version); err != nil {
		server.Logger().Error("Cannot persist tree version",
			"version", server.version, "error", err.Error())
		return protocol.NewErrorResponse(protocol.ErrInternalServer)
	}
	digest := server.prover.Digest()
	return protocol.NewModifyResponse(previousDigest, proof, digest,
		server.conf.signKey.Sign(digest), oldValues)
}

func decodeOp(treeOp protocol.TreeOp) (avltree.Operation, bool) {
	switch treeOp.Op {
	case "insert":
		return avltree.NewInsert(treeOp.Key, treeOp.Value), true
	case "update":
		return avltree.NewUpdate(treeOp.Key, treeOp.Value), true
	case "upsert":
		return avltree.NewInsertOrUpdate(treeOp.Key, treeOp.Value), true
	case "remove":
		return avltree.NewRemove(treeOp.Key), true
	case "removeIfExists":
		return avltree.NewRemoveIfExists(treeOp.Key), true
	default:
		return nil, false
	}
}

// Run implements the main functionality of the tree server. It listens
// for all declared connections with corresponding permissions.
func (server *TreeServer) Run(addrs []*Address) error {
	hasModificationPerm := false
	for i := 0; i < len(addrs); i++ {
		addr := addrs[i]
		hasModificationPerm = hasModificationPerm || addr.AllowModification
		if addr.AllowModification {
			server.Verb = "Accepting modifications"
		}
		if err := server.ListenAndHandle(addr.ServerAddress, server.HandleRequests); err != nil {
			return err
		}
	}
	if !hasModificationPerm {
		server.Logger().Warn("None of the addresses permit modification")
	}
	return nil
}

// Shutdown closes the server's connections, shuts down the server and
// closes the tree database.
func (server *TreeServer) Shutdown() error {
	if err := server.ServerBase.Shutdown(); err != nil {
		return err
	}
	return server.db.Close()
}
