// Package main (cmd/httpserver) runs the diver ledger bridge.
//
// The binary loads the credential stores named by --wallet, opens one gateway per
// request (or reuses pooled gateways with --session-pool) and serves the REST API.
// With --ledger-mode memory it runs against an in-process simulator of the diver
// chaincode, which is useful for front-end development.
//
// Every flag also reads an environment variable, and --config loads a YAML file whose
// values are overridden by flags that were set explicitly.
//
// Example usage against a test network:
//
//	dolphins-bridge --connection-profile=../network/connection.json \
//	    --wallet=file://./wallet --identity=user1 \
//	    --channel=mychannel --contract=dolphins \
//	    --static-dir=./views
//
// Example usage with Vault held identities and a session pool:
//
//	VAULT_TOKEN=... dolphins-bridge --config=bridge.yaml \
//	    --wallet=vault://vault.internal:8200/secret/fabric \
//	    --session-pool --session-pool-idle-ttl=2m
package main
