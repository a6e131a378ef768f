package testdata

type Event struct {
	Kind    string `rest:"kind"`
	Payload string `rest:"payload"`
}
