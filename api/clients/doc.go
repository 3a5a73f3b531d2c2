// Package clients provides a Go client for the diver ledger bridge REST API.
//
//	client := clients.NewBridgeClient("http://localhost:8080")
//	err := client.AddDiver(ctx, api.AddDiverRequest{ID: "D1", Name: "Alice"})
//	if errors.Is(err, interfaces.ErrIdentityUnavailable) {
//		// the bridge has no provisioned identity
//	}
package clients
