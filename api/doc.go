/*
Package api holds the wire types and server configuration of the diver ledger
bridge REST API.

# Routes

	POST /diver          addDiver       {id, name, bdate, gender, btype}
	POST /level          addLevel       {id, levelname, org, instid}
	POST /course         addCourse      {id, levelname, course}
	POST /test           addTestResult  {id, levelname, status}
	GET  /diver?id=      getLevel       diver record
	GET  /diver/history?id=             history of the diver record
	GET  /api/operations                operations accepted by the bridge

Write bodies may be JSON or form encoded. Writes answer {"result":"success"}
only after the transaction was committed.

# Errors

Failures answer with an ErrorResponse whose code names the failure class
(IdentityUnavailable, NetworkUnavailable, Timeout, ...). The clients subpackage
maps codes back to the sentinels in the interfaces package so callers can use
errors.Is on both sides of the wire.
*/
package api
