package mathx

type Vec3 struct{ X, Y, Z float32 }
