package avltree

// The externally visible digest of a tree is the root label followed by
// one byte holding the tree height. The height byte is unsigned; a
// height of 255 already exceeds any feasible deployment.

// DigestSize returns the digest length for the given configuration.
func DigestSize(conf Config) int {
	return conf.withDefaults().Hasher.Size() + 1
}

func (t *treeOps) digest(root Node) []byte {
	label := root.Label(t.conf.Hasher)
	d := make([]byte, 0, len(label)+1)
	d = append(d, label...)
	d = append(d, byte(t.rootHeight))
	return d
}

// splitDigest decodes a digest into its root label and height.
func (t *treeOps) splitDigest(digest []byte) (label []byte, height int, err error) {
	size := t.conf.Hasher.Size()
	if len(digest) != size+1 {
		return nil, 0, ErrDigestLength
	}
	return digest[:size], int(digest[size]), nil
}
