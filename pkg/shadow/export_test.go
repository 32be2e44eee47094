package shadow

var NewDeduperWithClock = newDeduperWithClock
