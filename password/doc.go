// Package password provides argon2id credential hashing with PHC-format
// encoded hashes.
package password
