/*
Package httpserver implements the REST front end of the diver ledger bridge.

Write routes (POST /diver, /level, /course, /test) accept JSON or form encoded
bodies, check that every field is present and then call the bridge. The
response is produced only after the bridge returned, so {"result":"success"}
always means the transaction was committed.

Read routes (GET /diver, /diver/history) evaluate against committed state and
return the decoded ledger record.

Failures are answered with api.ErrorResponse and a status from StatusFor:

	400  UnknownOperation, ArityMismatch, invalid body or missing field
	403  IdentityUnavailable
	404  RecordNotFound
	409  TransactionRejected
	429  rate limited
	500  MalformedLedgerResponse and unclassified errors
	502  NetworkUnavailable, ChannelNotFound, ContractNotFound
	503  CredentialStoreUnavailable
	504  Timeout

The server also carries the usual operational endpoints: /livez, /readyz,
/drain, /undrain, optional pprof under /debug and a separate metrics listener.
*/
package httpserver
