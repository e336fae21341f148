package pagarme

// Captured postback with its signature, keyed by the method's apiKey.
const (
	fixtureSecret = "ak_test_4f8e2b1d9c7a"

	fixtureFormBody = "id=1234567&fingerprint=a8f3a1c2e5b74b2f9c0b2d7e4f6a9b1c3d5e7f90&event=transaction_status_changed" +
		"&old_status=processing&desired_status=paid&current_status=paid&object=transaction" +
		"&transaction%5Bobject%5D=transaction&transaction%5Bstatus%5D=paid&transaction%5Bamount%5D=1000" +
		"&transaction%5Bpayment_method%5D=credit_card&transaction%5Bcustomer%5D%5Bname%5D=Jo%C3%A3o+Silva" +
		"&transaction%5Bitems%5D%5B0%5D%5Bid%5D=sku-1&transaction%5Bitems%5D%5B0%5D%5Btitle%5D=Camiseta+P" +
		"&transaction%5Bitems%5D%5B1%5D%5Bid%5D=sku-2&transaction%5Bmetadata%5D%5Border_code%5D=ORD-42"

	fixtureJSONBody = `{"id":1234567,"fingerprint":"a8f3a1c2e5b74b2f9c0b2d7e4f6a9b1c3d5e7f90","event":"transaction_status_changed",` +
		`"old_status":"processing","desired_status":"paid","current_status":"paid","object":"transaction",` +
		`"transaction":{"object":"transaction","status":"paid","amount":1000,"payment_method":"credit_card",` +
		`"customer":{"name":"João Silva"},"items":[{"id":"sku-1","title":"Camiseta P"},{"id":"sku-2"}],` +
		`"metadata":{"order_code":"ORD-42"}}}`

	fixtureCanonical = "id=1234567&fingerprint=a8f3a1c2e5b74b2f9c0b2d7e4f6a9b1c3d5e7f90&event=transaction_status_changed" +
		"&old_status=processing&desired_status=paid&current_status=paid&object=transaction" +
		"&transaction%5Bobject%5D=transaction&transaction%5Bstatus%5D=paid&transaction%5Bamount%5D=1000" +
		"&transaction%5Bpayment_method%5D=credit_card&transaction%5Bcustomer%5D%5Bname%5D=Jo%C3%A3o%20Silva" +
		"&transaction%5Bitems%5D%5B0%5D%5Bid%5D=sku-1&transaction%5Bitems%5D%5B0%5D%5Btitle%5D=Camiseta%20P" +
		"&transaction%5Bitems%5D%5B1%5D%5Bid%5D=sku-2&transaction%5Bmetadata%5D%5Border_code%5D=ORD-42"

	fixtureSignature       = "sha1=4cbc947d0fc988b8c5ed6e9c9a873f972c9c9e2d"
	fixtureRawSignature    = "sha1=868aeb9854eef71bc6da71ba2e99a56cd2e9727c"
	fixtureSHA256Signature = "sha256=a7898884ad8d89eef87496477bacb0c8bf8f55215c267f72058f9e502da267c0"
)
